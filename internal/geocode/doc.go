// Package geocode resolves GPS coordinates to place names through a Nominatim
// endpoint. Lookups are best-effort enhancements with a short bounded timeout;
// callers must treat any failure as "keep the value they already have".
package geocode
