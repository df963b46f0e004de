package tmux

import (
	"context"
	osexec "os/exec"
	"reflect"
	"strings"
	"testing"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/exec"
)

// fakeRunner is a test double for exec.CommandRunner.
type fakeRunner struct {
	calls     []fakeCall
	responses []fakeResponse
	callIndex int
}

type fakeCall struct {
	Name string
	Args []string
}

type fakeResponse struct {
	Result exec.CmdResult
	Err    error
}

func newFakeRunner(responses ...fakeResponse) *fakeRunner {
	return &fakeRunner{responses: responses}
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, _ exec.RunOpts) (exec.CmdResult, error) {
	f.calls = append(f.calls, fakeCall{Name: name, Args: args})
	if f.callIndex < len(f.responses) {
		resp := f.responses[f.callIndex]
		f.callIndex++
		return resp.Result, resp.Err
	}
	return exec.CmdResult{}, nil
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

func TestExecClient_ListSessions(t *testing.T) {
	tests := []struct {
		name     string
		response fakeResponse
		want     []string
		wantErr  bool
		wantCode errors.Code
	}{
		{
			name:     "sessions sorted",
			response: fakeResponse{Result: exec.CmdResult{Stdout: "muster-b\nmuster-a\n"}},
			want:     []string{"muster-a", "muster-b"},
		},
		{
			name:     "no sessions",
			response: fakeResponse{Result: exec.CmdResult{Stdout: ""}},
			want:     nil,
		},
		{
			name:     "no server running is zero sessions",
			response: fakeResponse{Result: exec.CmdResult{ExitCode: 1, Stderr: "no server running on /tmp/tmux-1000/default"}},
			want:     []string{},
		},
		{
			name:     "stale socket is zero sessions",
			response: fakeResponse{Result: exec.CmdResult{ExitCode: 1, Stderr: "error connecting to /tmp/tmux-1000/default (No such file or directory)"}},
			want:     []string{},
		},
		{
			name:     "real failure is an error, not an empty set",
			response: fakeResponse{Result: exec.CmdResult{ExitCode: 2, Stderr: "server exited unexpectedly"}},
			wantErr:  true,
			wantCode: errors.ETmuxFailed,
		},
		{
			name:     "binary missing",
			response: fakeResponse{Err: &osexec.Error{Name: "tmux", Err: osexec.ErrNotFound}},
			wantErr:  true,
			wantCode: errors.ETmuxNotInstalled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner(tt.response)
			client := NewExecClient("", runner)

			got, err := client.ListSessions(context.Background())

			if (err != nil) != tt.wantErr {
				t.Fatalf("ListSessions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if code := errors.GetCode(err); code != tt.wantCode {
					t.Errorf("error code = %q, want %q", code, tt.wantCode)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ListSessions() = %v, want %v", got, tt.want)
			}
			wantArgs := []string{"list-sessions", "-F", "#{session_name}"}
			if !reflect.DeepEqual(runner.calls[0].Args, wantArgs) {
				t.Errorf("args = %v, want %v", runner.calls[0].Args, wantArgs)
			}
		})
	}
}

func TestExecClient_HasSession(t *testing.T) {
	tests := []struct {
		name      string
		response  fakeResponse
		wantExist bool
		wantErr   bool
	}{
		{
			name:      "exists",
			response:  fakeResponse{Result: exec.CmdResult{ExitCode: 0}},
			wantExist: true,
		},
		{
			name:     "missing",
			response: fakeResponse{Result: exec.CmdResult{ExitCode: 1, Stderr: "can't find session"}},
		},
		{
			name:     "no server counts as missing",
			response: fakeResponse{Result: exec.CmdResult{ExitCode: 1, Stderr: "no server running on /tmp/tmux-1000/default"}},
		},
		{
			name:     "unexpected exit",
			response: fakeResponse{Result: exec.CmdResult{ExitCode: 2, Stderr: "broken"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner(tt.response)
			client := NewExecClient("", runner)

			exists, err := client.HasSession(context.Background(), "muster-a1")

			if exists != tt.wantExist {
				t.Errorf("HasSession() = %v, want %v", exists, tt.wantExist)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("HasSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			wantArgs := []string{"has-session", "-t", "=muster-a1"}
			if !reflect.DeepEqual(runner.calls[0].Args, wantArgs) {
				t.Errorf("args = %v, want %v (exact-match target)", runner.calls[0].Args, wantArgs)
			}
		})
	}
}

func TestExecClient_KillSession(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{ExitCode: 0}})
		client := NewExecClient("", runner)

		if err := client.KillSession(context.Background(), "muster-a1"); err != nil {
			t.Fatalf("KillSession() error = %v, want nil", err)
		}
		wantArgs := []string{"kill-session", "-t", "=muster-a1"}
		if !reflect.DeepEqual(runner.calls[0].Args, wantArgs) {
			t.Errorf("args = %v, want %v", runner.calls[0].Args, wantArgs)
		}
	})

	t.Run("missing session has its own code", func(t *testing.T) {
		runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{ExitCode: 1, Stderr: "can't find session: muster-a1"}})
		client := NewExecClient("", runner)

		err := client.KillSession(context.Background(), "muster-a1")
		if !IsSessionMissing(err) {
			t.Errorf("IsSessionMissing(%v) = false, want true", err)
		}
	})

	t.Run("other failure is not session-missing", func(t *testing.T) {
		runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{ExitCode: 2, Stderr: "broken"}})
		client := NewExecClient("", runner)

		err := client.KillSession(context.Background(), "muster-a1")
		if err == nil || IsSessionMissing(err) {
			t.Errorf("KillSession() error = %v, want a non-missing failure", err)
		}
	})
}

func TestExecClient_CapturePane(t *testing.T) {
	scrollback := "\x1b[32m$ run\x1b[0m\nline1\nline2\nline3\n\n\n"

	t.Run("tails and strips escapes", func(t *testing.T) {
		runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{Stdout: scrollback}})
		client := NewExecClient("", runner)

		got, err := client.CapturePane(context.Background(), "muster-a1", 2)
		if err != nil {
			t.Fatalf("CapturePane() error = %v, want nil", err)
		}
		if got != "line2\nline3" {
			t.Errorf("CapturePane() = %q, want last two content lines", got)
		}
		wantArgs := []string{"capture-pane", "-p", "-S", "-", "-t", "=muster-a1"}
		if !reflect.DeepEqual(runner.calls[0].Args, wantArgs) {
			t.Errorf("args = %v, want %v", runner.calls[0].Args, wantArgs)
		}
	})

	t.Run("zero lines returns everything", func(t *testing.T) {
		runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{Stdout: scrollback}})
		client := NewExecClient("", runner)

		got, err := client.CapturePane(context.Background(), "muster-a1", 0)
		if err != nil {
			t.Fatalf("CapturePane() error = %v, want nil", err)
		}
		if got != "$ run\nline1\nline2\nline3" {
			t.Errorf("CapturePane() = %q, want full stripped scrollback", got)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{ExitCode: 1, Stderr: "can't find session: muster-a1"}})
		client := NewExecClient("", runner)

		_, err := client.CapturePane(context.Background(), "muster-a1", 10)
		if !IsSessionMissing(err) {
			t.Errorf("IsSessionMissing(%v) = false, want true", err)
		}
	})
}

func TestExecClient_CustomBinary(t *testing.T) {
	runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{ExitCode: 0}})
	client := NewExecClient("/opt/tmux/bin/tmux", runner)

	if _, err := client.HasSession(context.Background(), "s"); err != nil {
		t.Fatalf("HasSession() error = %v, want nil", err)
	}
	if got := runner.calls[0].Name; got != "/opt/tmux/bin/tmux" {
		t.Errorf("binary = %q, want the configured path", got)
	}
}

func TestExecClient_StderrCapping(t *testing.T) {
	runner := newFakeRunner(fakeResponse{
		Result: exec.CmdResult{ExitCode: 2, Stderr: strings.Repeat("x", 5000)},
	})
	client := NewExecClient("", runner)

	_, err := client.HasSession(context.Background(), "s")
	if err == nil {
		t.Fatal("HasSession() error = nil, want a failure")
	}
	if !strings.Contains(err.Error(), "...") {
		t.Errorf("long stderr not capped: %d chars", len(err.Error()))
	}
	if len(err.Error()) > 5000 {
		t.Errorf("error message too long: %d chars", len(err.Error()))
	}
}

func TestSessionName(t *testing.T) {
	if got := SessionName("a1b2c3d4"); got != "muster-a1b2c3d4" {
		t.Errorf("SessionName() = %q, want %q", got, "muster-a1b2c3d4")
	}
}

func TestLiveHandles(t *testing.T) {
	runner := newFakeRunner(fakeResponse{Result: exec.CmdResult{Stdout: "muster-a\nmuster-b\n"}})
	client := NewExecClient("", runner)

	live, err := LiveHandles(context.Background(), client)
	if err != nil {
		t.Fatalf("LiveHandles() error = %v, want nil", err)
	}
	want := map[string]bool{"muster-a": true, "muster-b": true}
	if !reflect.DeepEqual(live, want) {
		t.Errorf("LiveHandles() = %v, want %v", live, want)
	}
}
