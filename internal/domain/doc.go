// Package domain models INMET BDMEP hourly weather-station observations.
//
// # Data Source
//
// The Instituto Nacional de Meteorologia publishes one ZIP archive per year at
// https://portal.inmet.gov.br/uploads/dadoshistoricos/{year}.zip. Each archive
// holds one CSV per automatic station, encoded in Latin-1 (ISO-8859-1).
//
// # Member File Layout
//
// Eight "key;value" metadata lines, in fixed order:
//
//	REGIAO:;CO
//	UF:;DF
//	ESTACAO:;BRASILIA
//	CODIGO (WMO):;A001
//	LATITUDE:;-15,78944444
//	LONGITUDE:;-47,92583332
//	ALTITUDE:;1160,96
//	DATA DE FUNDACAO:;2000-05-07
//
// Numbers use a decimal comma. Foundation dates come as "YYYY-MM-DD" or
// "DD/MM/YY"; any other shape is kept as raw text (see [FoundationDate]).
//
// Line 9 is the column header, then one row per station hour with 19
// positional, semicolon-separated columns. Many files end every row with a
// trailing separator, producing an empty 20th column that is ignored.
//
// # Header Vocabularies
//
// Column headers drifted across archive eras. Older files are matched by
// lower-cased prefix patterns ("precipitação total, horário (mm)" and
// "precipitacao total" both start with "precipita(ç|c)(ã|a)o"). Later files
// carry accents and units inline and are matched verbatim against a
// dictionary. Both strategies yield the canonical names listed in
// [DefaultSchema]; see [DetectNormalizer] for how a file's strategy is chosen.
//
// # Date and Hour
//
//	Date: "2019-01-01", "2019/01/01" or "01/01/2019".
//	Hour: "12:00", "1200" or "1200 UTC". Compact forms get a colon after the
//	first two characters; a remainder that is not two digits means minute 00.
//
// Values are UTC by source convention and are not adjusted.
//
// # Missing Values
//
// "-9999" is the INMET sentinel for "no observation" and decodes to nil, as
// do empty cells. A row whose 17 measurements are all nil carries no
// information and is dropped ([HasMeasurement]).
package domain
