package fuzztests

import (
	"os"
	"path/filepath"
	"testing"

	"loa/internal/stdlib"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB: ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

func addCorpusSeeds(f *testing.F) {
	addStdlibSeeds(f)
	addFixtureSeeds(f)
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
}

var languageSeeds = []string{
	"class Main {\n  run -> Int32 => 40 + 2.\n}\n",
	"namespace Geo.\nexport class Point {\n  var Int32 x.\n  init x: Int32 v => x: v.\n}\n",
	"import Geo/Point as P.\nlet p = P x: 1.\n",
	"class Box<out T> {\n  get -> T => panic \"empty\".\n}\n",
	"partial class A {\n  private f => #sym.\n}\n",
	"let t = (1, 2.5, $a, \"s\").\n",
	"class A {\n  run => 1 +",                  // оборванный класс
	"class { => . }",                           // мусор
	"let x = ((((((((((1)))))))))).",           // глубокая вложенность
	":t 1 + 2.\n:b \"x\".\n",                   // директивы REPL
	"class A {\n  + A other -> A => self.\n}\n", // бинарный метод
}

func addStdlibSeeds(f *testing.F) {
	srcs, err := stdlib.Sources()
	if err != nil {
		return
	}
	for _, src := range srcs {
		f.Add(clampSeed([]byte(src.Code)))
	}
}

func addFixtureSeeds(f *testing.F) {
	paths, err := filepath.Glob(filepath.Join("..", "driver", "testdata", "fixtures", "*", "*.loa"))
	if err != nil {
		return
	}
	for _, path := range paths {
		// #nosec G304 -- path comes from repository testdata glob
		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f.Add(clampSeed(src))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) string {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return string(input)
}
