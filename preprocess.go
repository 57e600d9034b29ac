package luapp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/errors"
	lua "github.com/yuin/gopher-lua"
)

// Options configures a Processor.
type Options struct {
	// Handler is the path of a Lua file evaluating to a message
	// callback. Empty means no handler.
	Handler string

	// LineNumbers interleaves --[[@N]] annotations in the output
	// whenever the source line changes.
	LineNumbers bool

	// OutputExtension is the extension of produced files; input paths
	// already carrying it are rejected. Defaults to "lua".
	OutputExtension string

	// SaveInfo, when non-empty, is the path of a Lua file recording
	// what was processed.
	SaveInfo string

	// Silent suppresses the per-file chatter on stdout.
	Silent bool

	// Debug keeps the intermediate metaprogram files on disk and
	// writes newlines in serialized strings as "\n".
	Debug bool
}

// FileInfo records the outcome of processing one file.
type FileInfo struct {
	Path                string
	OutputPath          string
	HasPreprocessorCode bool
}

// Processor drives the pipeline for a set of files: read, lex,
// transpile, execute the metaprogram, write the result. Files are
// processed strictly in the order supplied; one failure aborts.
type Processor struct {
	opts    Options
	rt      *luaRuntime
	handler *handler
	files   []FileInfo
}

// NewProcessor creates a Processor and, if configured, loads the
// message handler.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.OutputExtension == "" {
		opts.OutputExtension = "lua"
	}
	SetDebug(opts.Debug)
	p := &Processor{
		opts: opts,
		rt:   newLuaRuntime(opts.Debug),
	}
	if opts.Handler != "" {
		h, err := loadHandler(p.rt, opts.Handler)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.handler = h
	}
	return p, nil
}

// Close releases the interpreter.
func (p *Processor) Close() {
	p.rt.close()
}

// Files returns the per-file records accumulated so far.
func (p *Processor) Files() []FileInfo {
	return p.files
}

// ProcessPaths runs the pipeline over every path in order. The
// handler's "init" message may add or remove paths first. Paths
// already ending in the output extension are rejected before any file
// is touched, to prevent clobbering inputs.
func (p *Processor) ProcessPaths(paths []string) error {
	if p.handler != nil {
		var err error
		if paths, err = p.handler.onInit(paths); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		return &Error{
			Sender:    "CLI",
			OrigError: fmt.Errorf("No input paths."),
		}
	}
	suffix := "." + p.opts.OutputExtension
	for _, path := range paths {
		if strings.HasSuffix(path, suffix) {
			return &Error{
				Filename:  path,
				Sender:    "CLI",
				OrigError: fmt.Errorf("Input path ends in the output extension '%s'.", suffix),
			}
		}
	}
	for _, path := range paths {
		if err := p.ProcessFile(path); err != nil {
			return err
		}
	}
	if p.opts.SaveInfo != "" {
		if err := p.writeInfoFile(); err != nil {
			return err
		}
	}
	return nil
}

// ProcessFile runs the full pipeline for one file and writes the
// result next to it.
func (p *Processor) ProcessFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotatef(err, "reading %q", path)
	}
	source := string(data)

	// A '#' first line (shebang) is stripped before lexing and put
	// back in front of the output.
	specialFirstLine := ""
	if strings.HasPrefix(source, "#") {
		if i := strings.IndexByte(source, '\n'); i >= 0 {
			specialFirstLine, source = source[:i+1], source[i+1:]
		} else {
			specialFirstLine, source = source, ""
		}
	}

	tokens, err := Lex(path, source)
	if err != nil {
		return err
	}
	hasPP := false
	for _, tok := range tokens {
		if tok.Typ == TokenPPEntry {
			hasPP = true
			break
		}
	}

	meta, err := Transpile(path, source, tokens, p.opts.LineNumbers, p.opts.Debug)
	if err != nil {
		return err
	}

	metaPath := metaPathFor(path)
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		return errors.Annotatef(err, "writing %q", metaPath)
	}

	var out strings.Builder
	env := p.rt.newFileEnv(&out)
	if p.handler != nil {
		if err := p.handler.onBeforeMeta(path, env); err != nil {
			return err
		}
	}
	if err := p.rt.execute(metaPath, meta, env); err != nil {
		return err
	}
	if p.opts.Debug {
		logf("keeping metaprogram at %q", metaPath)
	} else if err := os.Remove(metaPath); err != nil {
		return errors.Annotatef(err, "removing %q", metaPath)
	}

	output := out.String()
	if p.handler != nil {
		if output, err = p.handler.onAfterMeta(path, output); err != nil {
			return err
		}
	}

	outPath := outputPathFor(path, p.opts.OutputExtension)
	if err := os.WriteFile(outPath, []byte(specialFirstLine+output), 0o644); err != nil {
		return errors.Annotatef(err, "writing %q", outPath)
	}
	if err := validateOutput(outPath, output); err != nil {
		return err
	}

	p.files = append(p.files, FileInfo{
		Path:                path,
		OutputPath:          outPath,
		HasPreprocessorCode: hasPP,
	})
	if !p.opts.Silent {
		fmt.Printf("Processed '%s' -> '%s'.\n", path, outPath)
	}
	if p.handler != nil {
		if err := p.handler.onFileDone(path, outPath); err != nil {
			return err
		}
	}
	return nil
}

// ProcessString runs the pipeline in memory: no metaprogram file is
// written and the result is returned instead of stored. Useful for
// embedding and tests.
func (p *Processor) ProcessString(name, source string) (string, error) {
	specialFirstLine := ""
	if strings.HasPrefix(source, "#") {
		if i := strings.IndexByte(source, '\n'); i >= 0 {
			specialFirstLine, source = source[:i+1], source[i+1:]
		} else {
			specialFirstLine, source = source, ""
		}
	}

	tokens, err := Lex(name, source)
	if err != nil {
		return "", err
	}
	meta, err := Transpile(name, source, tokens, p.opts.LineNumbers, p.opts.Debug)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	env := p.rt.newFileEnv(&out)
	if p.handler != nil {
		if err := p.handler.onBeforeMeta(name, env); err != nil {
			return "", err
		}
	}
	if err := p.rt.execute(metaPathFor(name), meta, env); err != nil {
		return "", err
	}

	output := out.String()
	if p.handler != nil {
		if output, err = p.handler.onAfterMeta(name, output); err != nil {
			return "", err
		}
	}
	if err := validateOutput(name, output); err != nil {
		return "", err
	}
	return specialFirstLine + output, nil
}

// validateOutput checks that the produced text compiles as Lua;
// failures are reported against the output file.
func validateOutput(outPath, output string) error {
	_, err := literalState.LoadString(output)
	if err == nil {
		return nil
	}
	rerr := runtimeError(outPath, err).(*Error)
	rerr.Sender = "Output"
	rerr.OrigError = fmt.Errorf("Output is not valid Lua: %s", rerr.OrigError.Error())
	rerr.Filename = outPath
	return rerr
}

// writeInfoFile serializes the processing record as a Lua file
// returning { date=..., files={ {path=..., hasPreprocessorCode=...},
// ... } }.
func (p *Processor) writeInfoFile() error {
	L := p.rt.state
	info := L.NewTable()
	info.RawSetString("date", lua.LString(time.Now().Format("2006-01-02 15:04:05")))
	files := L.NewTable()
	for _, f := range p.files {
		e := L.NewTable()
		e.RawSetString("path", lua.LString(f.Path))
		e.RawSetString("hasPreprocessorCode", lua.LBool(f.HasPreprocessorCode))
		files.Append(e)
	}
	info.RawSetString("files", files)

	s, err := Serialize(info, p.opts.Debug)
	if err != nil {
		return &Error{
			Filename:  p.opts.SaveInfo,
			Sender:    "Serializer",
			OrigError: err,
		}
	}
	if err := os.WriteFile(p.opts.SaveInfo, []byte("return "+s+"\n"), 0o644); err != nil {
		return errors.Annotatef(err, "writing %q", p.opts.SaveInfo)
	}
	return nil
}

// metaPathFor names the intermediate metaprogram file:
// dir/name.ext -> dir/name.meta.ext.
func metaPathFor(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".meta" + ext
}

// outputPathFor names the produced file: dir/name.ext -> dir/name.EXT.
func outputPathFor(path, outputExt string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + outputExt
}
