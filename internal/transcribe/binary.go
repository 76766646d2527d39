package transcribe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lgezyxr/subgen/internal/lang"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

// specialTokenPattern matches whisper.cpp control tokens such as
// [_BEG_], [_EOT_] and [_TT_250].
var specialTokenPattern = regexp.MustCompile(`^\[_.*\]$`)

func init() {
	Register("local", func(s Settings) (Recognizer, error) {
		if s.EnginePath == "" {
			return nil, fmt.Errorf("whisper.cpp engine not found, run 'subgen install whisper-cpp-cpu' or switch to the cloud provider: %w", ErrNotInstalled)
		}
		if s.ModelPath == "" {
			return nil, fmt.Errorf("whisper model %q not found, run 'subgen install model-whisper-%s': %w", s.Model, s.Model, ErrNotInstalled)
		}
		threads := s.Threads
		if threads <= 0 {
			threads = 4
		}
		timeout := time.Duration(s.TimeoutSec) * time.Second
		return &BinaryRecognizer{
			enginePath: s.EnginePath,
			modelPath:  s.ModelPath,
			model:      s.Model,
			threads:    threads,
			timeout:    timeout,
		}, nil
	})
}

// BinaryRecognizer runs the whisper.cpp binary and parses its full JSON
// output, including word-level token timestamps.
type BinaryRecognizer struct {
	enginePath string
	modelPath  string
	model      string
	threads    int
	timeout    time.Duration
}

func (r *BinaryRecognizer) Name() string  { return "local" }
func (r *BinaryRecognizer) Model() string { return r.model }

func (r *BinaryRecognizer) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "subgen_whisper_")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputBase := filepath.Join(tmpDir, "output")
	args := []string{
		"-m", r.modelPath,
		"-f", audioPath,
		"--output-json-full",
		"--print-progress",
		"--split-on-word",
		"-t", strconv.Itoa(r.threads),
		"-of", outputBase,
	}
	if opts.Language != "" && opts.Language != lang.Auto {
		args = append(args, "-l", lang.BaseCode(opts.Language))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.enginePath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", r.enginePath, err)
	}

	// Drain both pipes concurrently so neither fills and deadlocks the
	// child. Stderr carries the progress stream.
	stdoutCh := make(chan string, 1)
	stderrCh := make(chan []string, 1)
	go func() {
		var sb strings.Builder
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			sb.WriteString(sc.Text())
			sb.WriteByte('\n')
		}
		stdoutCh <- sb.String()
	}()
	go func() {
		var lines []string
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			lines = append(lines, line)
			if pct, ok := parseProgressLine(line); ok && opts.Progress != nil {
				opts.Progress(pct, 100)
			}
		}
		stderrCh <- lines
	}()

	stdoutText := <-stdoutCh
	stderrLines := <-stderrCh

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("whisper.cpp: %w", ctx.Err())
		}
		tail := stderrLines
		if len(tail) > 10 {
			tail = tail[len(tail)-10:]
		}
		return nil, fmt.Errorf("whisper.cpp exited: %v\n%s: %w", err, strings.Join(tail, "\n"), ErrFailed)
	}

	jsonFile := outputBase + ".json"
	raw, err := os.ReadFile(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp produced no JSON at %s, stdout: %s: %w",
			jsonFile, truncate(stdoutText, 500), ErrBadOutput)
	}

	result, err := parseWhisperJSON(raw)
	if err != nil {
		return nil, err
	}
	if result.Language == "" {
		result.Language = lang.BaseCode(opts.Language)
	}
	return result, nil
}

// parseProgressLine extracts the percentage from whisper.cpp stderr lines
// of the form "whisper_print_progress_callback: progress =  10%".
func parseProgressLine(line string) (int, bool) {
	idx := strings.Index(line, "progress =")
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len("progress ="):])
	rest = strings.TrimSuffix(rest, "%")
	pct, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return pct, true
}

// whisperOutput mirrors the subset of the whisper.cpp full JSON schema
// this package reads.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []whisperSegment `json:"transcription"`
}

type whisperSegment struct {
	Timestamps   whisperTimestamps `json:"timestamps"`
	Text         string            `json:"text"`
	Tokens       []whisperToken    `json:"tokens"`
	NoSpeechProb float64           `json:"no_speech_prob"`
}

type whisperToken struct {
	Text       string             `json:"text"`
	Timestamps *whisperTimestamps `json:"timestamps"`
}

type whisperTimestamps struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func parseWhisperJSON(raw []byte) (*Result, error) {
	var data whisperOutput
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse whisper.cpp JSON: %v, raw: %s: %w",
			err, truncate(string(raw), 500), ErrBadOutput)
	}
	if data.Transcription == nil {
		return nil, fmt.Errorf("whisper.cpp JSON missing 'transcription' key: %w", ErrBadOutput)
	}

	result := &Result{Language: data.Result.Language}
	for _, item := range data.Transcription {
		start, err1 := timestampToSeconds(item.Timestamps.From)
		end, err2 := timestampToSeconds(item.Timestamps.To)
		if err1 != nil || err2 != nil {
			continue
		}
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, subtitle.Segment{
			Start:        start,
			End:          end,
			Text:         text,
			Words:        mergeTokens(item.Tokens),
			NoSpeechProb: item.NoSpeechProb,
		})
	}
	return result, nil
}

// mergeTokens joins whisper.cpp BPE subword tokens into words. A token
// with a leading space starts a new word; one without continues the
// previous word. Control tokens and whitespace-only tokens are dropped.
func mergeTokens(tokens []whisperToken) []subtitle.Word {
	var words []subtitle.Word
	var cur *subtitle.Word
	for _, tok := range tokens {
		if specialTokenPattern.MatchString(tok.Text) {
			continue
		}
		if tok.Timestamps == nil {
			continue
		}
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}
		start, err1 := timestampToSeconds(tok.Timestamps.From)
		end, err2 := timestampToSeconds(tok.Timestamps.To)
		if err1 != nil || err2 != nil {
			continue
		}
		if strings.HasPrefix(tok.Text, " ") || cur == nil {
			if cur != nil {
				words = append(words, *cur)
			}
			cur = &subtitle.Word{
				Text:  strings.TrimLeft(tok.Text, " "),
				Start: start,
				End:   end,
			}
		} else {
			cur.Text += tok.Text
			cur.End = end
		}
	}
	if cur != nil {
		words = append(words, *cur)
	}
	return words
}

// timestampToSeconds converts "HH:MM:SS.mmm" (or the comma variant) into
// seconds.
func timestampToSeconds(ts string) (float64, error) {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	s, err := strconv.ParseFloat(strings.ReplaceAll(parts[2], ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	return float64(h)*3600 + float64(m)*60 + s, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
