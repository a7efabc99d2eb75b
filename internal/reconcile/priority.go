package reconcile

// Metadata source identifiers, in the order they are consulted per field.
const (
	sourceExif     = "exif"
	sourceExifGPS  = "exif_gps"
	sourceAnalysis = "analysis"
)

// fieldPriorities maps a field title to its source order. Camera-embedded
// data is ground truth for objective facts (when and where a photo was
// taken, which gear produced it), while the model is authoritative for the
// descriptive content it was specifically asked to produce. Fields without
// an entry consult EXIF first, then the analysis payload.
var fieldPriorities = map[string][]string{
	// Date and time: the camera clock beats the model's guess.
	"DateTime":      {sourceExif, sourceAnalysis},
	"Datum":         {sourceExif, sourceAnalysis},
	"Aufnahmedatum": {sourceExif, sourceAnalysis},

	// Location: GPS with reverse geocoding, then the model.
	"OrtohnePLZ": {sourceExifGPS, sourceAnalysis},
	"Ort":        {sourceExifGPS, sourceAnalysis},
	"Standort":   {sourceExifGPS, sourceAnalysis},
	"Location":   {sourceExifGPS, sourceAnalysis},

	// Descriptions: the model was asked for exactly this.
	"Titel":             {sourceAnalysis, sourceExif},
	"Beschreibung":      {sourceAnalysis, sourceExif},
	"Beschreibung_kurz": {sourceAnalysis, sourceExif},
	"Beschreibung_lang": {sourceAnalysis, sourceExif},
	"Title":             {sourceAnalysis, sourceExif},
	"Description":       {sourceAnalysis, sourceExif},

	// Technical camera data.
	"Kamera":      {sourceExif, sourceAnalysis},
	"Objektiv":    {sourceExif, sourceAnalysis},
	"Camera":      {sourceExif, sourceAnalysis},
	"Lens":        {sourceExif, sourceAnalysis},
	"ISO":         {sourceExif, sourceAnalysis},
	"Aperture":    {sourceExif, sourceAnalysis},
	"ShutterSpeed": {sourceExif, sourceAnalysis},
	"FocalLength": {sourceExif, sourceAnalysis},

	// Attribution.
	"Copyright":    {sourceExif, sourceAnalysis},
	"Author":       {sourceExif, sourceAnalysis},
	"Autor":        {sourceExif, sourceAnalysis},
	"Fotograf":     {sourceExif, sourceAnalysis},
	"Photographer": {sourceExif, sourceAnalysis},

	// Construction details are invisible to EXIF.
	"Material":     {sourceAnalysis},
	"Konstruktion": {sourceAnalysis},
	"Holzart":      {sourceAnalysis},
	"Bauweise":     {sourceAnalysis},
	"Construction": {sourceAnalysis},
	"WoodType":     {sourceAnalysis},
	"BuildingType": {sourceAnalysis},
}

// exifTagByTitle maps a field title to the EXIF tag that feeds it.
var exifTagByTitle = map[string]string{
	"DateTime":      "DateTimeOriginal",
	"Datum":         "DateTimeOriginal",
	"Aufnahmedatum": "DateTimeOriginal",

	"Artist":       "Artist",
	"Author":       "Artist",
	"Autor":        "Artist",
	"Fotograf":     "Artist",
	"Photographer": "Artist",

	"Copyright": "Copyright",

	"Titel":             "ImageDescription",
	"Title":             "ImageDescription",
	"Beschreibung":      "ImageDescription",
	"Beschreibung_kurz": "ImageDescription",
	"Description":       "ImageDescription",

	"Kamera":      "Make",
	"Camera":      "Make",
	"Objektiv":    "LensModel",
	"Lens":        "LensModel",
	"ISO":         "ISOSpeedRatings",
	"Aperture":    "FNumber",
	"ShutterSpeed": "ExposureTime",
	"FocalLength": "FocalLength",
}

func prioritiesFor(title string) []string {
	if order, ok := fieldPriorities[title]; ok {
		return order
	}
	return []string{sourceExif, sourceAnalysis}
}
