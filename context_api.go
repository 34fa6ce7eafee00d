package katachi

import "unsafe"

// The methods below act on the current world, see Context.PeekWorld.

// MakeEntity instantiates an entity of the named type in the current world.
func (c *Context) MakeEntity(entityType string) (Entity, error) {
	return c.PeekWorld().MakeEntity(entityType)
}

// DestroyEntity destroys e immediately.
func (c *Context) DestroyEntity(e Entity) error {
	return c.PeekWorld().DestroyEntity(e)
}

// DestroyEntityDelayed destroys e at the next flush.
func (c *Context) DestroyEntityDelayed(e Entity) error {
	return c.PeekWorld().DestroyEntityDelayed(e)
}

// Activate activates e immediately.
func (c *Context) Activate(e Entity) error {
	return c.PeekWorld().Activate(e)
}

// Deactivate deactivates e immediately.
func (c *Context) Deactivate(e Entity) error {
	return c.PeekWorld().Deactivate(e)
}

// ActivateDelayed activates e at the next flush.
func (c *Context) ActivateDelayed(e Entity) error {
	return c.PeekWorld().ActivateDelayed(e)
}

// DeactivateDelayed deactivates e at the next flush.
func (c *Context) DeactivateDelayed(e Entity) error {
	return c.PeekWorld().DeactivateDelayed(e)
}

// ChangeType moves e to the named entity type immediately.
func (c *Context) ChangeType(e Entity, entityType string) error {
	return c.PeekWorld().ChangeType(e, entityType)
}

// ChangeTypeDelayed moves e to the named entity type at the next flush.
func (c *Context) ChangeTypeDelayed(e Entity, entityType string) error {
	return c.PeekWorld().ChangeTypeDelayed(e, entityType)
}

// IsValid reports whether e is a live entity of the current world.
func (c *Context) IsValid(e Entity) bool {
	return c.PeekWorld().IsValid(e)
}

// IsActive reports whether e takes part in system updates.
func (c *Context) IsActive(e Entity) bool {
	return c.PeekWorld().IsActive(e)
}

// IsType reports whether e is of the named entity type.
func (c *Context) IsType(e Entity, entityType string) bool {
	return c.PeekWorld().IsType(e, entityType)
}

// TypeName returns the name of e's entity type.
func (c *Context) TypeName(e Entity) string {
	return c.PeekWorld().TypeName(e)
}

// HasComponent reports whether e has the named component.
func (c *Context) HasComponent(e Entity, component string) bool {
	return c.PeekWorld().HasComponent(e, component)
}

// GetComponent returns a pointer to e's named component, or nil.
func (c *Context) GetComponent(e Entity, component string) unsafe.Pointer {
	return c.PeekWorld().GetComponent(e, component)
}

// RunSystems runs every system against the current world.
func (c *Context) RunSystems() error {
	return c.PeekWorld().RunSystems()
}

// FlushDelayed applies the current world's delayed operations.
func (c *Context) FlushDelayed() int {
	return c.PeekWorld().FlushDelayed()
}
