// Package reconcile merges the three metadata sources for an image, the
// schema descriptors, camera EXIF tags, and the model analysis payload, into
// one validated record. Per-field source priority is asymmetric: EXIF wins
// for objective facts like capture date and gear, the analysis wins for
// descriptive content. Bad data never fails a record; unparseable or
// out-of-set values resolve to the "none" sentinel with a warning. Output is
// deterministic: fields keep schema order and identical inputs render to
// byte-identical JSON.
package reconcile
