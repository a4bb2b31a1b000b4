/*
go-multibox implements the anchor-box coding engine used by multibox
style convolutional detectors.  It builds the fixed multi-scale anchor
lattice, encodes ground-truth boxes into per-anchor regression targets
for training, decodes raw network outputs back into scored detections
with confidence filtering and per-class non-maximum suppression, and
computes the hard-negative-mining localization/classification loss.

The coder carries no mutable state after construction, so a single
Coder may be shared by any number of concurrent data loading or
inference workers.

See the loss, segment, preprocess and render subpackages for the
training loss, segmentation-map utilities, network input preparation
and result visualization.
*/
package multibox
