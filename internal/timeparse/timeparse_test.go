package timeparse

import (
	"testing"
	"time"
)

func TestDatetime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "no zone suffix means UTC",
			input: "2024-06-26T20:00:00",
			want:  time.Date(2024, 6, 26, 20, 0, 0, 0, time.UTC),
		},
		{
			name:  "explicit zulu",
			input: "2024-06-26T20:00:00Z",
			want:  time.Date(2024, 6, 26, 20, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset normalized to UTC",
			input: "2024-06-26T22:00:00+02:00",
			want:  time.Date(2024, 6, 26, 20, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Datetime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Datetime(%q): %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Datetime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDatetimeOrSpan(t *testing.T) {
	start := time.Date(2024, 6, 26, 20, 0, 0, 0, time.UTC)

	t.Run("hours with suffix", func(t *testing.T) {
		end, err := DatetimeOrSpan("12h")
		if err != nil {
			t.Fatal(err)
		}
		got, relative := end.Resolve(start)
		if !relative {
			t.Error("expected relative end")
		}
		if want := start.Add(12 * time.Hour); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("fractional bare number", func(t *testing.T) {
		end, err := DatetimeOrSpan("1.5")
		if err != nil {
			t.Fatal(err)
		}
		got, _ := end.Resolve(start)
		if want := start.Add(90 * time.Minute); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("absolute timestamp", func(t *testing.T) {
		end, err := DatetimeOrSpan("2024-06-27T08:00:00")
		if err != nil {
			t.Fatal(err)
		}
		got, relative := end.Resolve(start)
		if relative {
			t.Error("expected absolute end")
		}
		if want := time.Date(2024, 6, 27, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := DatetimeOrSpan("soon"); err == nil {
			t.Error("expected error")
		}
	})
}
