// Package takenat provides best-effort attribution of a photo's capture time.
//
// The attribution follows a priority order: the metadata timestamp string
// recorded by the camera, then a timestamp embedded in the file name.
package takenat
