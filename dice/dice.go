// Package dice renders dice rolls for Slack and reads them back.
package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Unknown is rendered for a face outside 1-6.
const Unknown = ":grey_question:"

var faceEmoji = [...]string{"", ":one:", ":two:", ":three:", ":four:", ":five:", ":six:"}

// Emoji returns the Slack emoji for a single face.
func Emoji(face int) string {
	if face < 1 || face >= len(faceEmoji) {
		return Unknown
	}
	return faceEmoji[face]
}

// FormatEmojis renders a roll as space separated emojis, in roll order.
func FormatEmojis(roll []int) string {
	parts := make([]string, len(roll))
	for i, face := range roll {
		parts[i] = Emoji(face)
	}
	return strings.Join(parts, " ")
}

// ParseEmojis reverses FormatEmojis.
func ParseEmojis(text string) ([]int, error) {
	fields := strings.Fields(text)
	roll := make([]int, 0, len(fields))
	for _, f := range fields {
		face := 0
		for i := 1; i < len(faceEmoji); i++ {
			if faceEmoji[i] == f {
				face = i
				break
			}
		}
		if face == 0 {
			return nil, fmt.Errorf("not a die emoji: %q", f)
		}
		roll = append(roll, face)
	}
	return roll, nil
}

// OptionValue is the value of the select option for the die at index.
// The index keeps equal faces distinct.
func OptionValue(index, face int) string {
	return strconv.Itoa(index) + ":" + strconv.Itoa(face)
}

// FaceFromOptionValue extracts the face from an OptionValue.
func FaceFromOptionValue(v string) (int, error) {
	i := strings.LastIndexByte(v, ':')
	face, err := strconv.Atoi(v[i+1:])
	if err != nil {
		return 0, fmt.Errorf("bad die option %q: %w", v, err)
	}
	if face < 1 || face >= len(faceEmoji) {
		return 0, fmt.Errorf("bad die option %q: face %d is not on a die", v, face)
	}
	return face, nil
}

// FacesFromOptionValues extracts the faces from selected options, keeping
// their order.
func FacesFromOptionValues(values []string) ([]int, error) {
	faces := make([]int, 0, len(values))
	for _, v := range values {
		face, err := FaceFromOptionValue(v)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}
	return faces, nil
}
