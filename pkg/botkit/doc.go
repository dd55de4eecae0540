/*
Package botkit is the runtime linked into every bot program emitted by
flowbot.

The emitted program registers one handler per flow node on a Runtime and
starts it on a transport. botkit owns everything that is the same for every
flow:

  - dispatch of commands, callback tokens, button labels and text triggers;
  - the per-user variable store (ports.VariableStore);
  - the single wait-state slot per user, a small state machine that routes the
    next text or media message to the collector that asked for it;
  - the multi-select sets, one per user and node;
  - the Telegram transport (telego), kept behind the Sender interface so
    handlers can be exercised with a fake.

Handlers receive a *Session, the explicit per-activation context. A Session
is only valid for the update it was created for.
*/
package botkit
