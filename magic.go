package pna

// Magic is the 8-byte constant every archive (or every part of a split
// archive) begins with, modeled on PNG's own magic number: a non-ASCII lead
// byte, an ASCII tag, and a CR/LF/EOF trio that trips up naive text-mode
// transfers.
var Magic = [8]byte{0x89, 'P', 'N', 'A', 0x0d, 0x0a, 0x1a, 0x0a}
