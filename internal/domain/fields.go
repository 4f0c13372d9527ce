package domain

// Measurement identifies one canonical measurement column. The zero value is
// the first measurement (precipitation); use MeasurementByName to resolve
// names coming from normalized headers.
type Measurement int

const (
	Precipitacao Measurement = iota
	PressaoAtmosferica
	PressaoAtmosfericaMaxima
	PressaoAtmosfericaMinima
	Radiacao
	TemperaturaAr
	TemperaturaOrvalho
	TemperaturaMaxima
	TemperaturaMinima
	TemperaturaOrvalhoMaxima
	TemperaturaOrvalhoMinima
	UmidadeRelativaMaxima
	UmidadeRelativaMinima
	UmidadeRelativa
	VentoDirecao
	VentoRajada
	VentoVelocidade

	// MeasurementCount is the number of canonical measurement columns.
	MeasurementCount = iota
)

// Canonical names of the identifier columns.
const (
	FieldDate      = "data"
	FieldHour      = "hora"
	FieldTimestamp = "data_hora"
	FieldStationID = "codigo_wmo"
)

// Schema holds the source-format conventions shared by every parser. A single
// read-only value is built at package initialization; DefaultSchema hands out
// copies so callers cannot mutate it.
type Schema struct {
	// Measurements lists the canonical measurement names in output order.
	Measurements [MeasurementCount]string

	// Sentinel is the literal the source uses for "no observation".
	Sentinel string

	// MetadataLines is the number of station header lines before the table.
	MetadataLines int

	// Columns is the number of positional table columns that are decoded.
	// Trailing columns beyond it are ignored.
	Columns int
}

var defaultSchema = Schema{
	Measurements: [MeasurementCount]string{
		"precipitacao",
		"pressao_atmosferica",
		"pressao_atmosferica_maxima",
		"pressao_atmosferica_minima",
		"radiacao",
		"temperatura_ar",
		"temperatura_orvalho",
		"temperatura_maxima",
		"temperatura_minima",
		"temperatura_orvalho_maxima",
		"temperatura_orvalho_minima",
		"umidade_relativa_maxima",
		"umidade_relativa_minima",
		"umidade_relativa",
		"vento_direcao",
		"vento_rajada",
		"vento_velocidade",
	},
	Sentinel:      "-9999",
	MetadataLines: 8,
	Columns:       19,
}

var measurementIndex = func() map[string]Measurement {
	idx := make(map[string]Measurement, MeasurementCount)
	for i, name := range defaultSchema.Measurements {
		idx[name] = Measurement(i)
	}
	return idx
}()

// DefaultSchema returns the conventions of the INMET BDMEP archives.
func DefaultSchema() Schema {
	return defaultSchema
}

// String returns the canonical column name.
func (m Measurement) String() string {
	if m < 0 || int(m) >= MeasurementCount {
		return ""
	}
	return defaultSchema.Measurements[m]
}

// MeasurementByName resolves a canonical column name.
func MeasurementByName(name string) (Measurement, bool) {
	m, ok := measurementIndex[name]
	return m, ok
}

// IsMeasurement reports whether name is a canonical measurement column.
func IsMeasurement(name string) bool {
	_, ok := measurementIndex[name]
	return ok
}
