package domain

import (
	"strings"
)

const (
	legacyHeader = "DATA (YYYY-MM-DD);HORA (UTC);PRECIPITACAO TOTAL, HORARIO (mm);" +
		"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB);PRESSAO ATMOSFERICA MAX.NA HORA ANT. (AUT) (mB);" +
		"PRESSAO ATMOSFERICA MIN. NA HORA ANT. (AUT) (mB);RADIACAO GLOBAL (KJ/m2);" +
		"TEMPERATURA DO AR - BULBO SECO, HORARIA (C);TEMPERATURA DO PONTO DE ORVALHO (C);" +
		"TEMPERATURA MAXIMA NA HORA ANT. (AUT) (C);TEMPERATURA MINIMA NA HORA ANT. (AUT) (C);" +
		"TEMPERATURA ORVALHO MAX. NA HORA ANT. (AUT) (C);TEMPERATURA ORVALHO MIN. NA HORA ANT. (AUT) (C);" +
		"UMIDADE REL. MAX. NA HORA ANT. (AUT) (%);UMIDADE REL. MIN. NA HORA ANT. (AUT) (%);" +
		"UMIDADE RELATIVA DO AR, HORARIA (%);VENTO, DIRECAO HORARIA (gr) (gr);" +
		"VENTO, RAJADA MAXIMA (m/s);VENTO, VELOCIDADE HORARIA (m/s);"

	inlineUnitHeader = "Data;Hora UTC;PRECIPITAÇÃO TOTAL, HORÁRIO (mm);" +
		"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB);PRESSÃO ATMOSFERICA MAX.NA HORA ANT. (AUT) (mB);" +
		"PRESSÃO ATMOSFERICA MIN. NA HORA ANT. (AUT) (mB);RADIACAO GLOBAL (Kj/m²);" +
		"TEMPERATURA DO AR - BULBO SECO, HORARIA (°C);TEMPERATURA DO PONTO DE ORVALHO (°C);" +
		"TEMPERATURA MÁXIMA NA HORA ANT. (AUT) (°C);TEMPERATURA MÍNIMA NA HORA ANT. (AUT) (°C);" +
		"TEMPERATURA ORVALHO MAX. NA HORA ANT. (AUT) (°C);TEMPERATURA ORVALHO MIN. NA HORA ANT. (AUT) (°C);" +
		"UMIDADE REL. MAX. NA HORA ANT. (AUT) (%);UMIDADE REL. MIN. NA HORA ANT. (AUT) (%);" +
		"UMIDADE RELATIVA DO AR, HORARIA (%);VENTO, DIREÇÃO HORARIA (gr) (° (gr));" +
		"VENTO, RAJADA MAXIMA (m/s);VENTO, VELOCIDADE HORARIA (m/s);"

	testMetadata = "REGIAO:;CO\n" +
		"UF:;DF\n" +
		"ESTACAO:;BRASILIA\n" +
		"CODIGO (WMO):;A001\n" +
		"LATITUDE:;-15,78944444\n" +
		"LONGITUDE:;-47,92583332\n" +
		"ALTITUDE:;1160,96\n" +
		"DATA DE FUNDACAO:;2000-05-07\n"
)

// row builds one data line; missing trailing measurements are the sentinel.
func row(date, hour string, values ...string) string {
	cells := make([]string, 0, 2+MeasurementCount)
	cells = append(cells, date, hour)
	for i := 0; i < MeasurementCount; i++ {
		if i < len(values) {
			cells = append(cells, values[i])
			continue
		}
		cells = append(cells, "-9999")
	}
	return strings.Join(cells, ";") + ";"
}

func body(header string, rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func headerFields(header string) []string {
	return strings.Split(strings.TrimSuffix(header, ";"), ";")
}
