//go:build gofuzz
// +build gofuzz

package capsule

type fuzzVisitor struct{}

func (fuzzVisitor) OnCapsule(c Capsule) bool {
	// Every decoded capsule must serialize again without hitting the
	// internal length-mismatch defect path.
	if _, err := SerializeCapsule(c.Copy()); err != nil {
		panic(err)
	}
	return true
}

func (fuzzVisitor) OnParseFailure(error) {}

func Fuzz(data []byte) int {
	if len(data) > 4096 {
		return -1
	}

	p := NewParser(fuzzVisitor{})
	if err := p.Ingest(data); err != nil {
		return 0
	}
	if err := p.Finish(); err != nil {
		return 0
	}

	return 1
}
