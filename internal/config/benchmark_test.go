package config

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func BenchmarkLoadConfig_Sample(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cfg := DefaultConfig()
		if err := toml.Unmarshal([]byte(SampleConfigTOML), &cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNormalizePattern(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := NormalizePattern("*.Api.Example.com"); err != nil {
			b.Fatal(err)
		}
	}
}
