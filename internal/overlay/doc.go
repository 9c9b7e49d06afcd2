// Package overlay rasterises title cards computed by the layout engine into
// transparent PNG overlays and composites them onto extracted video frames.
package overlay
