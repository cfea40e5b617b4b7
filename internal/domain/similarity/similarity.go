// Package similarity implementa la detección ligera de productos duplicados por
// similitud de nombre normalizado. No es un algoritmo de distancia: solo
// normalización + contención mutua de substrings, suficiente para avisar
// "¿ya existe este artículo?" al registrar una entrada.
package similarity

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Patrones que significan "pulgada" en los nombres reales del almacén
// (comillas, inch, in, y la palabra tailandesa นิ้ว). Se pueden ampliar según
// aparezcan variantes en los datos.
var inchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"`),
	regexp.MustCompile(`(?i)\binch\b`),
	regexp.MustCompile(`(?i)\bin\b`),
	regexp.MustCompile(`นิ้ว`),
}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	crossSigns   = regexp.MustCompile(`[×x*]`)
	trailingPunc = regexp.MustCompile(`[.,/\\-]+$`)
)

// Normalize lleva un nombre crudo a su forma canónica: NFKC + case folding,
// espacios colapsados, variantes de "pulgada" unificadas a " in ",
// ×/x/* unificados a x, y puntuación final recortada.
func Normalize(raw string) string {
	// cases.Caser no es seguro para uso concurrente: uno por llamada.
	s := cases.Fold().String(norm.NFKC.String(raw))
	s = collapseSpaces(s)
	for _, p := range inchPatterns {
		s = p.ReplaceAllString(s, " in ")
	}
	s = collapseSpaces(s)
	s = crossSigns.ReplaceAllString(s, "x")
	s = trailingPunc.ReplaceAllString(s, "")
	return s
}

// ExactMatch compara dos nombres en forma canónica.
func ExactMatch(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Candidates devuelve los nombres candidatos a duplicado de query, en el orden
// de entrada y sin repetidos. Consultas de menos de 2 runas no devuelven nada
// (evita falsos positivos con tokens como "a" o "in").
func Candidates(query string, names []string) []string {
	q := Normalize(query)
	if len([]rune(q)) < 2 {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, name := range names {
		cn := Normalize(name)
		if cn == "" {
			continue
		}
		if strings.Contains(cn, q) || strings.Contains(q, cn) {
			if _, dup := seen[name]; !dup {
				out = append(out, name)
				seen[name] = struct{}{}
			}
		}
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
