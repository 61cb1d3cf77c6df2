package resource

import "fmt"

// MaxAttachments is the maximum number of color attachments of a Target.
const MaxAttachments = 8

// Target is a render target: up to MaxAttachments color textures and an
// optional depth/stencil texture, all referenced by ID. The swapchain
// target has no textures of its own.
type Target struct {
	id           ID
	attachments  []ID
	depthStencil ID
	swapchain    bool
}

// NewTarget creates a Target without attachments.
func NewTarget(id ID) *Target {
	return &Target{id: id, depthStencil: InvalidID}
}

// NewSwapchainTarget creates the Target that presents to the window.
func NewSwapchainTarget(id ID) *Target {
	return &Target{id: id, depthStencil: InvalidID, swapchain: true}
}

// Kind returns KindTarget.
func (t *Target) Kind() Kind { return KindTarget }

// ID returns the handle assigned at creation.
func (t *Target) ID() ID { return t.id }

// Usage returns 0: attachments are accounted to their textures.
func (t *Target) Usage() int { return 0 }

// IsSwapchain reports whether the Target presents to the window.
func (t *Target) IsSwapchain() bool { return t.swapchain }

// AttachTexture appends a color attachment and returns its index.
func (t *Target) AttachTexture(texture ID) int {
	switch {
	case t.swapchain:
		panic("resource: cannot attach textures to the swapchain target")
	case !texture.IsValid():
		panic("resource: Target.AttachTexture: invalid texture")
	case len(t.attachments) == MaxAttachments:
		panic(fmt.Sprintf("resource: Target has %d attachments already", MaxAttachments))
	}
	t.attachments = append(t.attachments, texture)
	return len(t.attachments) - 1
}

// AttachDepthStencil sets the depth/stencil texture.
func (t *Target) AttachDepthStencil(texture ID) {
	if t.swapchain {
		panic("resource: cannot attach textures to the swapchain target")
	}
	t.depthStencil = texture
}

// Attachments returns the color attachments in order. The slice is owned
// by the Target.
func (t *Target) Attachments() []ID { return t.attachments }

// Attachment returns color attachment i, or InvalidID.
func (t *Target) Attachment(i int) ID {
	if i < 0 || i >= len(t.attachments) {
		return InvalidID
	}
	return t.attachments[i]
}

// DepthStencil returns the depth/stencil texture, or InvalidID.
func (t *Target) DepthStencil() ID { return t.depthStencil }
