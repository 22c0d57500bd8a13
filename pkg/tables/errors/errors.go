package errors

import "errors"

var (
	// Input errors 📂
	ErrFileNotMatched = errors.New("❌ file does not match naming convention")
	ErrEmptyContent   = errors.New("❌ no table content collected")

	// Encoding errors 🔢
	ErrEncoding   = errors.New("❌ malformed hex content")
	ErrValueRange = errors.New("❌ value out of range")

	// Output errors 💾
	ErrIO = errors.New("❌ artifact write failed")

	// Verification errors 🔍
	ErrCorruptArtifact = errors.New("❌ corrupt total table artifact")
)
