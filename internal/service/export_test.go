package service

// Aliases exposing unexported identifiers to the external test package.
var BumpVersion = bumpVersion

const PresignExpiry = presignExpiry
