package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemInfo_Percentages(t *testing.T) {
	tests := []struct {
		name     string
		mem      MemInfo
		wantMem  float64
		wantSwap float64
	}{
		{"zero totals", MemInfo{}, 0, 0},
		{"half used", MemInfo{UsedMem: 512, TotalMem: 1024, UsedSwap: 1, TotalSwap: 4}, 50, 25},
		{"full", MemInfo{UsedMem: 8, TotalMem: 8}, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantMem, tt.mem.MemPercent(), 0.001)
			assert.InDelta(t, tt.wantSwap, tt.mem.SwapPercent(), 0.001)
		})
	}
}

func TestSystemSnapshot_Clone(t *testing.T) {
	orig := SystemSnapshot{CPU: CPUUsage{Avg: 10, PerCore: []float32{5, 15}}}
	cp := orig.Clone()

	orig.CPU.PerCore[0] = 99
	assert.Equal(t, []float32{5, 15}, cp.CPU.PerCore)
	assert.Equal(t, float32(10), cp.CPU.Avg)
}

func TestDecodeSnapshots_WireFormat(t *testing.T) {
	payload := `[{"cpu":{"avg":12.5,"detailed":[10,15]},"mem":{"used_mem":2048,"total_mem":4096,"used_swap":0,"total_swap":1024}}]`

	batch, err := DecodeSnapshots([]byte(payload))
	require.NoError(t, err)
	require.Len(t, batch, 1)

	assert.Equal(t, float32(12.5), batch[0].CPU.Avg)
	assert.Equal(t, []float32{10, 15}, batch[0].CPU.PerCore)
	assert.Equal(t, uint64(2048), batch[0].Mem.UsedMem)
	assert.Equal(t, uint64(1024), batch[0].Mem.TotalSwap)
}

func TestDecodeSnapshots_Invalid(t *testing.T) {
	for _, in := range []string{"", "{", `{"cpu":1}`, `[{"cpu":"x"}]`} {
		_, err := DecodeSnapshots([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestEncodeSnapshots(t *testing.T) {
	out, err := EncodeSnapshots(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	out, err = EncodeSnapshots([]SystemSnapshot{{CPU: CPUUsage{Avg: 1, PerCore: []float32{1}}, Mem: MemInfo{TotalMem: 2}}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"detailed":[1]`)
	assert.Contains(t, string(out), `"total_mem":2`)

	back, err := DecodeSnapshots(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), back[0].Mem.TotalMem)
}
