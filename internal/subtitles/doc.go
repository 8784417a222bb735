// Package subtitles selects, fetches, and parses caption tracks into the
// transcript segment shape. Parsers tolerate styling noise and markup; a
// track that parses to zero segments is reported as absent, not as an error.
package subtitles
