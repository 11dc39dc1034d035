// internal/domain/bridge/anchor.go
package bridge

import "crypto/sha256"

// DiscriminatorLen is the Anchor 8-byte type prefix.
const DiscriminatorLen = 8

type Discriminator [DiscriminatorLen]byte

func discriminator(namespace, name string) Discriminator {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorLen])
	return d
}

// AccountDiscriminator = sha256("account:<Name>")[:8]
func AccountDiscriminator(name string) Discriminator { return discriminator("account", name) }

// InstructionDiscriminator = sha256("global:<snake_name>")[:8]
func InstructionDiscriminator(name string) Discriminator { return discriminator("global", name) }

// EventDiscriminator = sha256("event:<Name>")[:8]
func EventDiscriminator(name string) Discriminator { return discriminator("event", name) }
