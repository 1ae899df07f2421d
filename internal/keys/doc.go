// Package keys derives stable, filesystem-safe identifiers from free-text
// metadata supplied by the capture client.
//
// Patient keys combine name and date of birth; study keys prefer the study
// uid and fall back to description plus date so studies from different clinic
// dates never share a key. Stored image filenames carry a short random suffix
// for collision avoidance only.
package keys
