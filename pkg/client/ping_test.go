package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedianRTT(t *testing.T) {
	tests := []struct {
		name string
		rtts []int64
		want int64
	}{
		{name: "empty", rtts: nil, want: 0},
		{name: "odd", rtts: []int64{30, 10, 20}, want: 20},
		{name: "even", rtts: []int64{40, 10, 20, 30}, want: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, medianRTT(tt.rtts))
		})
	}
}

func TestRemoveOutlierRTTs(t *testing.T) {
	tests := []struct {
		name string
		rtts []int64
		want []int64
	}{
		{name: "drops a spike", rtts: []int64{10, 12, 11, 90}, want: []int64{10, 12, 11}},
		{name: "keeps small values", rtts: []int64{2, 3, 15}, want: []int64{2, 3, 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, removeOutlierRTTs(tt.rtts))
		})
	}
	assert.Equal(t, 11.0, averagePing([]int64{10, 12, 11, 90}))
	assert.Equal(t, 0.0, averagePing(nil))
}
