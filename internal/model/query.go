package model

// Bounds on accepted question length, counted in runes after trimming.
const (
	QueryMinChars = 3
	QueryMaxChars = 1000
)
