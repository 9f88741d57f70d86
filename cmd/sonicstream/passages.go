package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// passages are built-in sample texts, short and extended.
var passages = map[string]string{
	"harbor-notes": "The library ship arrived without fanfare, a low whistle and the smell of salt. " +
		"People lined up with unread letters and left with borrowed weather.",
	"harbor-notes-extended": "The library ship arrived without fanfare, a low whistle and the smell of salt. " +
		"People lined up with unread letters and left with borrowed weather. " +
		"Inside, the shelves hummed. Every book carried a tide mark, and every chair faced " +
		"the sea. The librarian kept a log of storms that never made landfall. " +
		"She would lend you a story and ask for a memory in return. " +
		"By dusk the deck lights flickered, and readers clustered near the rails, " +
		"listening for pages turning across the water. " +
		"At dawn the gangway lifted. The harbor kept the echo of pages long after " +
		"the horizon swallowed the ship.",
	"glass-map": "Nera traced the old avenues with a graphite finger, watching the city shift. " +
		"Every night the map remembered a different dream.",
	"glass-map-extended": "Nera traced the old avenues with a graphite finger, watching the city shift. " +
		"Every night the map remembered a different dream. " +
		"By dusk the plaza had become a river. Lanterns floated like small moons, each " +
		"reflecting a route only they could see. " +
		"She sketched quickly, promising to meet the alleys before morning erased them. " +
		"A hinge pressed into the paper, a doorway that opened with a sigh. " +
		"Beyond it was a street that never moved, anchored to a memory she did not own. " +
		"She walked it anyway, listening for the city to say her name.",
	"small-machines": "The kettle-bot woke the neighborhood with soft clicks, pouring warmth into cups " +
		"left on windowsills.",
	"small-machines-extended": "The kettle-bot woke the neighborhood with soft clicks, pouring warmth into cups " +
		"left on windowsills. Streetlight engines climbed the poles at dusk, polishing " +
		"glass with care. In winter, the machines nested in the boiler room, listening " +
		"for spring. When the first thaw arrived, they carried hot stones to the doorways " +
		"and left without a word. The town said thank you by keeping oil tins full.",
	"night-plaza": "By dusk the plaza had become a river. Lanterns floated like small moons, " +
		"each reflecting a route only they could see.",
	"night-plaza-extended": "By dusk the plaza had become a river. Lanterns floated like small moons, " +
		"each reflecting a route only they could see. " +
		"Neighbors crossed in silence, trading maps drawn on the backs of receipts. " +
		"A violinist played beneath the arcade, her notes drifting downstream. " +
		"When the bells rang midnight, the water fell away, and the stones kept the memory " +
		"of the current for another night.",
}

func passageNames() []string {
	names := make([]string, 0, len(passages))
	for name := range passages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveText picks the input text from exactly one of the text, file and
// passage flags. A file of "-" reads stdin.
func resolveText(text, file, passage string) (string, error) {
	set := 0
	for _, v := range []string{text, file, passage} {
		if v != "" {
			set++
		}
	}
	switch {
	case set == 0:
		return "", fmt.Errorf("nothing to synthesize: use --text, --file or --passage")
	case set > 1:
		return "", fmt.Errorf("--text, --file and --passage are mutually exclusive")
	}

	switch {
	case text != "":
		return text, nil
	case file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return string(data), nil
	}

	body, ok := passages[strings.ToLower(passage)]
	if !ok {
		return "", fmt.Errorf("unknown passage %q (available: %s)", passage, strings.Join(passageNames(), ", "))
	}
	return body, nil
}
