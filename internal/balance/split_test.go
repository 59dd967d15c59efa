package balance

import (
	"math"
	"testing"
)

func TestComputeShares(t *testing.T) {
	tests := []struct {
		name         string
		kind         SplitKind
		amount       float64
		participants []uint
		custom       map[uint]float64
		weights      map[uint]float64
		wantErr      bool
		want         map[uint]float64
	}{
		{
			name:         "equal split two ways",
			kind:         SplitEqual,
			amount:       30.0,
			participants: []uint{1, 2},
			want:         map[uint]float64{1: 15.0, 2: 15.0},
		},
		{
			name:         "equal split three ways rounds each share",
			kind:         SplitEqual,
			amount:       20.0,
			participants: []uint{1, 2, 3},
			want:         map[uint]float64{1: 6.67, 2: 6.67, 3: 6.67},
		},
		{
			name:         "custom split takes caller amounts",
			kind:         SplitCustom,
			amount:       50.0,
			participants: []uint{1, 2, 3},
			custom:       map[uint]float64{1: 20.0, 2: 30.0},
			want:         map[uint]float64{1: 20.0, 2: 30.0, 3: 0},
		},
		{
			name:         "custom split clamps negative to zero",
			kind:         SplitCustom,
			amount:       10.0,
			participants: []uint{1, 2},
			custom:       map[uint]float64{1: -5.0, 2: 10.0},
			want:         map[uint]float64{1: 0, 2: 10.0},
		},
		{
			name:         "weighted split defaults missing weight to one",
			kind:         SplitShares,
			amount:       40.0,
			participants: []uint{1, 2, 3},
			weights:      map[uint]float64{1: 2},
			want:         map[uint]float64{1: 20.0, 2: 10.0, 3: 10.0},
		},
		{
			name:         "weighted split with zero total yields zero shares",
			kind:         SplitShares,
			amount:       40.0,
			participants: []uint{1, 2},
			weights:      map[uint]float64{1: 0, 2: 0},
			want:         map[uint]float64{1: 0, 2: 0},
		},
		{
			name:         "no participants yields empty map",
			kind:         SplitEqual,
			amount:       30.0,
			participants: nil,
			want:         map[uint]float64{},
		},
		{
			name:         "negative amount rejected",
			kind:         SplitEqual,
			amount:       -1.0,
			participants: []uint{1},
			wantErr:      true,
		},
		{
			name:         "unknown split kind rejected",
			kind:         SplitKind("percentage"),
			amount:       10.0,
			participants: []uint{1},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeShares(tt.kind, tt.amount, tt.participants, tt.custom, tt.weights)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ComputeShares() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d shares, want %d: %+v", len(got), len(tt.want), got)
			}
			for id, want := range tt.want {
				if math.Abs(got[id]-want) > 0.001 {
					t.Errorf("participant %d share = %v, want %v", id, got[id], want)
				}
			}
		})
	}
}
