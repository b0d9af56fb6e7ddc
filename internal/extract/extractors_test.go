package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
	"github.com/RichGutz/Scraper.Neoauto/internal/rules"
)

func testRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.New(map[string][]string{
		"toyota":   nil,
		"mercedes": {"mercedes benz", "mercedes-benz"},
	}, []string{"único dueño", "un solo dueño", "primer dueño"},
		[]string{"no es único dueño", "segundo dueño"})
	require.NoError(t, err)
	return rs
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *domain.Price
	}{
		{"labeled usd", "Precio: US$ 12,500 negociable", &domain.Price{Amount: 12500, Currency: "USD"}},
		{"bare usd", "lo dejo a US$ 9,800", &domain.Price{Amount: 9800, Currency: "USD"}},
		{"usd word", "USD 15000 conversable", &domain.Price{Amount: 15000, Currency: "USD"}},
		{"soles", "Precio S/ 45,000", &domain.Price{Amount: 45000, Currency: "PEN"}},
		{"labeled beats bare", "repuestos por US$ 300. Precio: US$ 11,900", &domain.Price{Amount: 11900, Currency: "USD"}},
		{"no price", "vendo auto en buen estado", nil},
		{"zero rejected", "US$ 0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractPrice(tt.text))
		})
	}
}

func TestExtractMileage(t *testing.T) {
	km := func(n int) *int { return &n }
	tests := []struct {
		name string
		text string
		want *int
	}{
		{"labeled", "Kilometraje: 45,000 km", km(45000)},
		{"bare", "recorrido 82.500 km reales", km(82500)},
		{"labeled beats bare", "a 10 km del centro. Kilometraje: 60,000 km", km(60000)},
		{"absent", "poco uso, como nuevo", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMileage(tt.text))
		})
	}
}

func TestExtractTransmission(t *testing.T) {
	tests := []struct {
		text string
		want domain.Transmission
	}{
		{"Transmisión: Automática", domain.TransmissionAutomatic},
		{"Transmisión\nSecuencial", domain.TransmissionAutomatic},
		{"Transmision: mecánica", domain.TransmissionManual},
		{"Transmisión: Manual", domain.TransmissionManual},
		{"Transmisión: CVT", domain.TransmissionUnknown},
		{"sin datos de caja", domain.TransmissionUnknown},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, extractTransmission(tt.text), "text %q", tt.text)
	}
}

func TestExtractYear(t *testing.T) {
	year := func(n int) *int { return &n }
	assert.Equal(t, year(2018), extractYear("Toyota Yaris 2018"))
	assert.Equal(t, year(1997), extractYear("Nissan Sentra 1997 "))
	assert.Nil(t, extractYear("Toyota Yaris full equipo"))
	assert.Nil(t, extractYear("2018 Toyota Yaris rojo"))
}

func TestExtractSpecsBlock(t *testing.T) {
	text := "Toyota Yaris\nEspecificaciones técnicas\nMotor: 1.3L\nPuertas: 4\nEquipamiento\nAire acondicionado"
	block := extractSpecsBlock(text)
	assert.Contains(t, block, "Motor: 1.3L")
	assert.Contains(t, block, "Puertas: 4")
	assert.NotContains(t, block, "Aire acondicionado")

	// Without the closing heading the block still ends at the text.
	open := extractSpecsBlock("Especificaciones técnicas\nMotor: 2.0L turbo")
	assert.Contains(t, open, "Motor: 2.0L turbo")

	assert.Empty(t, extractSpecsBlock("sin sección de especificaciones"))
}

func TestBrandFromURL(t *testing.T) {
	assert.Equal(t, "toyota", brandFromURL("https://neoauto.com/auto/seminuevo/toyota-yaris-2018-123"))
	assert.Equal(t, "mercedes", brandFromURL("https://neoauto.com/auto/usado/mercedes-benz-c200-456"))
	assert.Empty(t, brandFromURL("https://neoauto.com/venta-de-autos"))
}

func TestIsSingleOwner(t *testing.T) {
	rs := testRules(t)

	assert.True(t, isSingleOwner("Vehículo de ÚNICO DUEÑO, mantenimientos al día", rs))
	assert.True(t, isSingleOwner("un solo dueño desde agencia", rs))

	// Exclusions veto even when a key phrase is present as a substring.
	assert.False(t, isSingleOwner("no es único dueño, soy el segundo", rs))
	assert.False(t, isSingleOwner("segundo dueño, papeles en regla", rs))

	assert.False(t, isSingleOwner("auto bien conservado", rs))
}
