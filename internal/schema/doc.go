// Package schema parses the target library's field definition into typed,
// ordered descriptors. Field order from the source payload is preserved and
// later drives deterministic record output. Parsing is permissive: unknown
// type tags and choice fields without choices degrade to plain text with a
// warning, so only a payload with no field list at all fails the run.
package schema
