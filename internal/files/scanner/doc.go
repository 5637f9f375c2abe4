// Package scanner lists the JSON documents in an input folder in a stable order.
package scanner
