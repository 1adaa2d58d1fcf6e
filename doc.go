package survey

// This package (and its sub-packages) reads EXIF metadata from a set of tree photographs, joins it with a CSV of measured trunk girths and produces a web map, GeoJSON records and descriptive statistics for the trees.  The pipeline is: gathering images, reading EXIF metadata, joining girth measurements, projecting trees to points, rendering the map and reporting statistics.
