package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Almacen-api/internal/domain/similarity"
)

func TestNormalize_UnificaPulgadas(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`Pipe 2"`, "pipe 2 in"},
		{"Pipe 2 inch", "pipe 2 in"},
		{"Pipe 2 in", "pipe 2 in"},
		{"ท่อ 2 นิ้ว", "ท่อ 2 in"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, similarity.Normalize(c.raw), "raw: %q", c.raw)
	}
}

func TestNormalize_EspaciosYSignos(t *testing.T) {
	assert.Equal(t, "pipe 2x4", similarity.Normalize("  PIPE   2×4  "))
	assert.Equal(t, "pipe 2x4", similarity.Normalize("Pipe 2*4"))
	assert.Equal(t, "valve b", similarity.Normalize("Valve B---"))
}

func TestExactMatch(t *testing.T) {
	assert.True(t, similarity.ExactMatch(`Pipe 2"`, "pipe 2 INCH"))
	assert.False(t, similarity.ExactMatch("Pipe 2 in", "Pipe 3 in"))
}

func TestCandidates_ContencionMutua(t *testing.T) {
	names := []string{`Pipe 2" PVC`, "Valve B", "pipe 2 inch pvc", "Pipe"}

	got := similarity.Candidates("Pipe 2 in", names)
	// "Pipe" está contenido en la consulta normalizada, también cuenta.
	assert.Equal(t, []string{`Pipe 2" PVC`, "pipe 2 inch pvc", "Pipe"}, got)
}

func TestCandidates_ConsultaCortaNoDevuelveNada(t *testing.T) {
	assert.Nil(t, similarity.Candidates("a", []string{"abc"}))
	assert.Nil(t, similarity.Candidates("  ", []string{"abc"}))
}

func TestCandidates_SinRepetidos(t *testing.T) {
	names := []string{"Pipe A", "Pipe A", "Pipe A PVC"}
	got := similarity.Candidates("Pipe A", names)
	assert.Equal(t, []string{"Pipe A", "Pipe A PVC"}, got)
}
