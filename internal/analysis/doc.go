// Package analysis obtains and represents the vision model's description of
// an image. The response payload is treated as untrusted input: decoding
// tolerates code fences and surrounding prose, and accessors normalize
// wrong-typed values instead of failing. A file-backed cache keyed by image
// stem keeps re-runs from resubmitting images to the model.
package analysis
