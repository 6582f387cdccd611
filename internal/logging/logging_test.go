package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLogger_Levels(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name      string
		logger    Logger
		wantOut   []string
		wantErr   []string
		absentAll []string
	}{
		{
			name:      "quiet",
			logger:    Logger{},
			wantErr:   []string{"[warn] always"},
			absentAll: []string{"[info]", "[debug]", "[error]", "[warn] maybe"},
		},
		{
			name:      "verbose",
			logger:    Logger{Verbose: true},
			wantOut:   []string{"[info] info"},
			wantErr:   []string{"[warn] maybe", "[warn] always", "[error] boom"},
			absentAll: []string{"[debug]"},
		},
		{
			name:    "debug",
			logger:  Logger{Debug: true},
			wantOut: []string{"[info] info", "[debug] detail"},
			wantErr: []string{"[warn] maybe", "[error] boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := tt.logger
			l.Out = &out
			l.Err = &errOut

			l.Infof("info")
			l.Debugf("detail")
			l.Warnf("maybe")
			l.WarnfAlways("always")
			l.Errorf("boom")

			for _, s := range tt.wantOut {
				if !strings.Contains(out.String(), s) {
					t.Errorf("stdout missing %q, got %q", s, out.String())
				}
			}
			for _, s := range tt.wantErr {
				if !strings.Contains(errOut.String(), s) {
					t.Errorf("stderr missing %q, got %q", s, errOut.String())
				}
			}
			for _, s := range tt.absentAll {
				if strings.Contains(out.String()+errOut.String(), s) {
					t.Errorf("output should not contain %q", s)
				}
			}
		})
	}
}
