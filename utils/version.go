package utils

// REVISION is stamped into every response envelope so client builds
// can be matched against the server they talked to.
const REVISION = "1.4.2"
