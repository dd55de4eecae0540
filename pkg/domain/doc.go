/*
Package domain contains the flow model compiled by flowbot.

A flow is authored in a visual editor as one or more sheets of nodes and
connections. The model merges those sheets into a single Graph, which is the
intermediate representation consumed by the emitter, the validator and the
visualisation tools, and produced (partially) by the decompiler.

# Key Entities

  - Node: one conversational step or moderation action, with a typed Data record.
  - Connection: a directed edge used when no explicit button carries the transition.
  - Button: an interactive element attached to a node or a conditional message.
  - ConditionalMessage: a prioritised, variable-guarded override of a node's text and keyboard.
  - Project: bot-level metadata plus the authored sheets.

The package is kept free of I/O. Decoding of editor payloads lives in
internal/compiler.
*/
package domain
