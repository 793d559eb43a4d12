package bitrate

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "kilobits", in: "128k", want: 128000},
		{name: "uppercase kilobits", in: "192K", want: 192000},
		{name: "fractional megabits", in: "2.5M", want: 2500000},
		{name: "plain bits", in: "96000", want: 96000},
		{name: "gigabits", in: "1G", want: 1000000000},
		{name: "surrounding spaces", in: " 64k ", want: 64000},
		{name: "empty", in: "", wantErr: true},
		{name: "suffix only", in: "k", wantErr: true},
		{name: "negative", in: "-5k", wantErr: true},
		{name: "garbage", in: "fast", wantErr: true},
		{name: "zero", in: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
