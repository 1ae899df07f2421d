// Package recognize extracts schedule text from screenshots.
//
// Images are normalized (grayscale, upscale, contrast stretch, sharpen) and
// then recognized under several Tesseract page segmentation modes. Each
// candidate output is scored by counting date-like substrings; the scorer
// keeps the first output reaching the highest count, a deterministic
// tie-break on the fixed mode priority order.
package recognize
