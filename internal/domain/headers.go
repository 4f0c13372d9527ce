package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// HeaderNormalizer maps one raw column header to a canonical name. It
// returns false for headers it does not recognize.
type HeaderNormalizer interface {
	Normalize(header string) (string, bool)
}

// HeaderMapping is the normalization result for one raw header.
type HeaderMapping struct {
	Raw        string
	Name       string
	Recognized bool
}

// headerRule pairs a lower-cased prefix pattern with its canonical name.
type headerRule struct {
	pattern *regexp.Regexp
	name    string
}

// headerRules is evaluated top to bottom, first match wins. Entries sharing a
// prefix ("temperatura ...", "umidade rel...") are ordered so the more
// specific suffix is tested before the generic one can swallow it.
var headerRules = []headerRule{
	{regexp.MustCompile(`^data`), FieldDate},
	{regexp.MustCompile(`^hora`), FieldHour},
	{regexp.MustCompile(`^precipita(ç|c)(ã|a)o`), Precipitacao.String()},
	{regexp.MustCompile(`^press(ã|a)o atmosf(é|e)rica ao n(í|i)vel`), PressaoAtmosferica.String()},
	{regexp.MustCompile(`^press(ã|a)o atmosf(é|e)rica m(á|a)x`), PressaoAtmosfericaMaxima.String()},
	{regexp.MustCompile(`^press(ã|a)o atmosf(é|e)rica m(í|i)n`), PressaoAtmosfericaMinima.String()},
	{regexp.MustCompile(`^radia(ç|c)(ã|a)o`), Radiacao.String()},
	{regexp.MustCompile(`^temperatura do ar`), TemperaturaAr.String()},
	{regexp.MustCompile(`^temperatura do ponto de orvalho`), TemperaturaOrvalho.String()},
	{regexp.MustCompile(`^temperatura m(á|a)x`), TemperaturaMaxima.String()},
	{regexp.MustCompile(`^temperatura m(í|i)n`), TemperaturaMinima.String()},
	{regexp.MustCompile(`^temperatura orvalho m(á|a)x`), TemperaturaOrvalhoMaxima.String()},
	{regexp.MustCompile(`^temperatura orvalho m(í|i)n`), TemperaturaOrvalhoMinima.String()},
	{regexp.MustCompile(`^umidade rel\. m(á|a)x`), UmidadeRelativaMaxima.String()},
	{regexp.MustCompile(`^umidade rel\. m(í|i)n`), UmidadeRelativaMinima.String()},
	{regexp.MustCompile(`^umidade relativa do ar`), UmidadeRelativa.String()},
	{regexp.MustCompile(`^vento, dire(ç|c)(ã|a)o`), VentoDirecao.String()},
	{regexp.MustCompile(`^vento, rajada`), VentoRajada.String()},
	{regexp.MustCompile(`^vento, velocidade`), VentoVelocidade.String()},
}

// PatternNormalizer lower-cases a header and tests it against an ordered
// table of prefix patterns.
type PatternNormalizer struct {
	rules []headerRule
}

// NewPatternNormalizer returns a normalizer over the built-in rule table.
func NewPatternNormalizer() *PatternNormalizer {
	return &PatternNormalizer{rules: headerRules}
}

func (n *PatternNormalizer) Normalize(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, r := range n.rules {
		if r.pattern.MatchString(h) {
			return r.name, true
		}
	}
	return "", false
}

// inlineUnitHeaders covers the archive eras whose headers carry accents and
// units inline. Keys are matched verbatim, after trimming surrounding space.
var inlineUnitHeaders = map[string]string{
	"DATA (YYYY-MM-DD)": FieldDate,
	"Data":              FieldDate,
	"DATA":              FieldDate,
	"HORA (UTC)":        FieldHour,
	"Hora UTC":          FieldHour,
	"HORA UTC":          FieldHour,

	"PRECIPITAÇÃO TOTAL, HORÁRIO (mm)": Precipitacao.String(),
	"PRECIPITACAO TOTAL, HORARIO (mm)": Precipitacao.String(),
	"Precipitação Total, Horário (mm)": Precipitacao.String(),

	"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB)": PressaoAtmosferica.String(),
	"PRESSÃO ATMOSFÉRICA AO NÍVEL DA ESTAÇÃO, HORÁRIA (mB)": PressaoAtmosferica.String(),
	"Pressão Atmosférica ao Nível da Estação, Horária (mB)": PressaoAtmosferica.String(),

	"PRESSÃO ATMOSFERICA MAX.NA HORA ANT. (AUT) (mB)":  PressaoAtmosfericaMaxima.String(),
	"PRESSÃO ATMOSFÉRICA MÁX. NA HORA ANT. (AUT) (mB)": PressaoAtmosfericaMaxima.String(),
	"PRESSAO ATMOSFERICA MAX. NA HORA ANT. (AUT) (mB)": PressaoAtmosfericaMaxima.String(),

	"PRESSÃO ATMOSFERICA MIN. NA HORA ANT. (AUT) (mB)": PressaoAtmosfericaMinima.String(),
	"PRESSÃO ATMOSFÉRICA MÍN. NA HORA ANT. (AUT) (mB)": PressaoAtmosfericaMinima.String(),
	"PRESSAO ATMOSFERICA MIN. NA HORA ANT. (AUT) (mB)": PressaoAtmosfericaMinima.String(),

	"RADIACAO GLOBAL (Kj/m²)": Radiacao.String(),
	"RADIACAO GLOBAL (KJ/m²)": Radiacao.String(),
	"RADIAÇÃO GLOBAL (KJ/m²)": Radiacao.String(),
	"RADIACAO GLOBAL (KJ/m2)": Radiacao.String(),

	"TEMPERATURA DO AR - BULBO SECO, HORARIA (°C)": TemperaturaAr.String(),
	"TEMPERATURA DO AR - BULBO SECO, HORÁRIA (°C)": TemperaturaAr.String(),
	"Temperatura do Ar - Bulbo Seco, Horária (°C)": TemperaturaAr.String(),

	"TEMPERATURA DO PONTO DE ORVALHO (°C)": TemperaturaOrvalho.String(),
	"Temperatura do Ponto de Orvalho (°C)": TemperaturaOrvalho.String(),

	"TEMPERATURA MÁXIMA NA HORA ANT. (AUT) (°C)": TemperaturaMaxima.String(),
	"TEMPERATURA MAXIMA NA HORA ANT. (AUT) (°C)": TemperaturaMaxima.String(),

	"TEMPERATURA MÍNIMA NA HORA ANT. (AUT) (°C)": TemperaturaMinima.String(),
	"TEMPERATURA MINIMA NA HORA ANT. (AUT) (°C)": TemperaturaMinima.String(),

	"TEMPERATURA ORVALHO MAX. NA HORA ANT. (AUT) (°C)": TemperaturaOrvalhoMaxima.String(),
	"TEMPERATURA ORVALHO MÁX. NA HORA ANT. (AUT) (°C)": TemperaturaOrvalhoMaxima.String(),

	"TEMPERATURA ORVALHO MIN. NA HORA ANT. (AUT) (°C)": TemperaturaOrvalhoMinima.String(),
	"TEMPERATURA ORVALHO MÍN. NA HORA ANT. (AUT) (°C)": TemperaturaOrvalhoMinima.String(),

	"UMIDADE REL. MAX. NA HORA ANT. (AUT) (%)": UmidadeRelativaMaxima.String(),
	"UMIDADE REL. MÁX. NA HORA ANT. (AUT) (%)": UmidadeRelativaMaxima.String(),

	"UMIDADE REL. MIN. NA HORA ANT. (AUT) (%)": UmidadeRelativaMinima.String(),
	"UMIDADE REL. MÍN. NA HORA ANT. (AUT) (%)": UmidadeRelativaMinima.String(),

	"UMIDADE RELATIVA DO AR, HORARIA (%)": UmidadeRelativa.String(),
	"UMIDADE RELATIVA DO AR, HORÁRIA (%)": UmidadeRelativa.String(),
	"Umidade Relativa do Ar, Horária (%)": UmidadeRelativa.String(),

	"VENTO, DIREÇÃO HORARIA (gr) (° (gr))": VentoDirecao.String(),
	"VENTO, DIREÇÃO HORÁRIA (gr) (° (gr))": VentoDirecao.String(),
	"VENTO, DIRECAO HORARIA (gr) (° (gr))": VentoDirecao.String(),

	"VENTO, RAJADA MAXIMA (m/s)": VentoRajada.String(),
	"VENTO, RAJADA MÁXIMA (m/s)": VentoRajada.String(),

	"VENTO, VELOCIDADE HORARIA (m/s)": VentoVelocidade.String(),
	"VENTO, VELOCIDADE HORÁRIA (m/s)": VentoVelocidade.String(),
}

// LookupNormalizer matches full raw headers against a fixed dictionary.
type LookupNormalizer struct {
	table map[string]string
}

// NewLookupNormalizer returns a normalizer over the built-in dictionary of
// inline-unit headers.
func NewLookupNormalizer() *LookupNormalizer {
	return &LookupNormalizer{table: inlineUnitHeaders}
}

func (n *LookupNormalizer) Normalize(header string) (string, bool) {
	name, ok := n.table[strings.TrimSpace(header)]
	return name, ok
}

// inlineUnitRe matches a header ending in a parenthesized unit, e.g. "(mm)".
var inlineUnitRe = regexp.MustCompile(`\([^()]*\)\)?\s*$`)

// DetectNormalizer selects the strategy for a file's header row. Files whose
// headers carry accented text with inline units use the exact lookup, as
// long as the dictionary knows their date and hour columns; everything else
// falls back to prefix patterns.
func DetectNormalizer(headers []string) HeaderNormalizer {
	lookup := NewLookupNormalizer()
	if !hasAccentedInlineUnits(headers) {
		return NewPatternNormalizer()
	}

	var date, hour bool
	for _, h := range headers {
		switch name, _ := lookup.Normalize(h); name {
		case FieldDate:
			date = true
		case FieldHour:
			hour = true
		}
	}
	if date && hour {
		return lookup
	}
	return NewPatternNormalizer()
}

func hasAccentedInlineUnits(headers []string) bool {
	for _, h := range headers {
		if inlineUnitRe.MatchString(h) && hasNonASCIILetter(h) {
			return true
		}
	}
	return false
}

func hasNonASCIILetter(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// NormalizeHeaders maps every raw header with n. Unrecognized headers keep
// their raw text as name.
func NormalizeHeaders(n HeaderNormalizer, headers []string) []HeaderMapping {
	out := make([]HeaderMapping, len(headers))
	for i, h := range headers {
		name, ok := n.Normalize(h)
		if !ok {
			name = h
		}
		out[i] = HeaderMapping{Raw: h, Name: name, Recognized: ok}
	}
	return out
}
