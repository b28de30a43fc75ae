package calibrate

import "bufio"

type key int

const (
	keyOther key = iota
	keyUp
	keyDown
	keyRight
	keyLeft
)

// readKey decodes one keypress from a raw-mode byte stream. Arrow keys
// arrive as ESC [ A..D; anything else collapses to keyOther, which the
// session treats as quit.
func readKey(br *bufio.Reader) (key, error) {
	b, err := br.ReadByte()
	if err != nil {
		return keyOther, err
	}
	if b != 0x1b {
		return keyOther, nil
	}
	if b, err = br.ReadByte(); err != nil || b != '[' {
		return keyOther, err
	}
	if b, err = br.ReadByte(); err != nil {
		return keyOther, err
	}
	switch b {
	case 'A':
		return keyUp, nil
	case 'B':
		return keyDown, nil
	case 'C':
		return keyRight, nil
	case 'D':
		return keyLeft, nil
	}
	return keyOther, nil
}
