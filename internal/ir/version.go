package ir

// FormatVersion identifies the document body encoding written by this
// module. It is stamped into every database at open time.
const FormatVersion = "1"
