package main

import (
	viewport "github.com/marben/mandel_viewport"
)

// action is something a button or key press does to the controller.
type action func(c *viewport.Controller) error

func moveAction(d viewport.Direction) action {
	return func(c *viewport.Controller) error { return c.Move(d) }
}

func zoomAction(d viewport.ZoomDirection) action {
	return func(c *viewport.Controller) error { return c.Zoom(d) }
}

func jumpAction(v viewport.View) action {
	return func(c *viewport.Controller) error {
		c.Jump(v)
		return nil
	}
}

func resetAction(c *viewport.Controller) error {
	c.Reset()
	return nil
}

// keyActions maps KeyboardEvent.key values to actions.
var keyActions = func() map[string]action {
	m := map[string]action{
		"ArrowLeft":  moveAction(viewport.Left),
		"ArrowRight": moveAction(viewport.Right),
		"ArrowUp":    moveAction(viewport.Up),
		"ArrowDown":  moveAction(viewport.Down),
		"h":          moveAction(viewport.Left),
		"l":          moveAction(viewport.Right),
		"k":          moveAction(viewport.Up),
		"j":          moveAction(viewport.Down),
		"+":          zoomAction(viewport.In),
		"=":          zoomAction(viewport.In),
		"-":          zoomAction(viewport.Out),
		"r":          resetAction,
	}
	for i, lm := range viewport.Landmarks {
		m[string(rune('1'+i))] = jumpAction(lm.Region.View())
	}
	return m
}()
