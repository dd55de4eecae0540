/*
Package ports defines the driven ports (interfaces) used by flowbot.

These interfaces decouple the bot runtime and the compile service from their
storage backends.

# Key Interfaces

  - VariableStore: persists the per-user variables written by a running bot.
  - ArtifactCache: caches compiled programs by content hash in the compile service.
  - DistributedLocker: serialises the updates of one user across bot replicas.
*/
package ports
