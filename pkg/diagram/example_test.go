package diagram_test

import (
	"fmt"

	"github.com/matzehuels/fretsheet/pkg/diagram"
)

func ExampleSetMarker() {
	d := diagram.New("C", diagram.SixStrings, diagram.SixFrets)
	c := diagram.Fretted(4, 2)

	d = diagram.SetMarker(d, c, diagram.Note, true)
	fmt.Println(d.MarkersAt(c))

	// Root replaces the plain note at the same coordinate.
	d = diagram.SetMarker(d, c, diagram.Root, true)
	d = diagram.SetMarker(d, c, diagram.Square, true)
	fmt.Println(d.MarkersAt(c))
	// Output:
	// note
	// root+square
}

func ExampleSetMarker_openLane() {
	d := diagram.New("Em", diagram.SixStrings, diagram.SixFrets)
	d = diagram.SetMarker(d, diagram.Open(0), diagram.Root, true)
	d = diagram.SetMarker(d, diagram.Open(5), diagram.Note, true)

	fmt.Println("open strings:", d.OpenStringList())
	for _, c := range d.Coordinates() {
		fmt.Println(c, d.MarkersAt(c))
	}
	// Output:
	// open strings: [0 5]
	// 0-open root
	// 5-open note
}

func ExampleResize() {
	d := diagram.New("A", diagram.SixStrings, diagram.SixFrets)
	d = diagram.SetMarker(d, diagram.Fretted(2, 1), diagram.Note, true)

	d = diagram.Resize(d, diagram.SixStrings, diagram.TwelveFrets)
	fmt.Println(d.Title, d.FretCount, len(d.FretLabels), len(d.Markers))
	// Output:
	// A 12 12 0
}

func ExampleParseCoordinate() {
	for _, key := range []string{"3-2", "0-open"} {
		c, _ := diagram.ParseCoordinate(key)
		fmt.Printf("%s open=%v string=%d fret=%d\n", c, c.Open, c.StringIndex, c.FretIndex)
	}
	// Output:
	// 3-2 open=false string=3 fret=2
	// 0-open open=true string=0 fret=0
}
