package hotpatch

const platformSupported = true
