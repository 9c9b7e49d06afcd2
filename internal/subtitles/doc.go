// Package subtitles compiles timed transcripts into burnable subtitle files.
//
// A Compiler is built from an explicit StyleTable and Options; it owns no
// package-level state. Compile produces an ordered Event slice for one of three
// modes (plain, modern, karaoke) and the ASS and SRT encoders serialise those
// events byte-for-byte in the layout ffmpeg's libass filter expects. A
// transcript with no usable timing compiles to an empty slice, which callers
// treat as "nothing to burn".
package subtitles
