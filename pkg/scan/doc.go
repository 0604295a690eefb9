// Package scan discovers JPEG files below a root directory.
package scan
