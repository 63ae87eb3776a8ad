// Command skipdetect detects recurring intro and credits segments across a
// media library, either as a one-shot analysis pass or as a scheduled
// daemon.
package main
