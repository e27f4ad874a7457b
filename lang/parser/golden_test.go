package parser_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/lakevm/lake/internal/filetest"
	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/parser"
)

var testUpdateGoldenTests = flag.Bool("test.update-golden-tests", false, "If set, replace expected golden test results with actual results.")

// TestGolden runs every .lake program under testdata/in through the parser
// and vm.Run, diffing the resulting stack dump and any error message
// against the corresponding golden files in testdata/out (tokens-in/
// tokens-out style golden testing, adapted to source-in/stack-out).
func TestGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".lake") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			vm := machine.New()
			var output, errOutput string

			body, perr := parser.Parse(vm, fi.Name(), src)
			if perr != nil {
				errOutput = perr.Error() + "\n"
			} else if _, rerr := vm.Run(body); rerr != nil {
				errOutput = rerr.Error() + "\n"
			} else {
				output = vm.Stack().String() + "\n"
			}

			filetest.DiffOutput(t, fi, output, resultDir, testUpdateGoldenTests)
			filetest.DiffErrors(t, fi, errOutput, resultDir, testUpdateGoldenTests)
		})
	}
}
