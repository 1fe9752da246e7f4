// Package domain contains the core entities and value objects for copycat.
//
// This package is the innermost layer of the application. It has no
// dependencies on infrastructure concerns (file system, transports, logging)
// and holds only the record/replay data model and its invariants.
//
// # Entities
//
//   - [Command]: one opaque control payload plus its offset from the session's arm instant
//   - [Sequence]: the ordered commands of one completed recording session
//   - [SessionMeta]: identity and wall-clock arm time of a recording session
//   - [SequenceBuilder]: the in-progress buffer of an open session
//   - [ArmState]: the Idle/Armed state shared by the recorder and the player
//   - [Triggers]: classification of inbound payloads into control signals
package domain
