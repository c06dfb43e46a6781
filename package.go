// Comfystage coordinates a two-stage generation pipeline: text-to-image jobs
// submitted to a ComfyUI backend, followed by import of the results into a 3D
// content tool over a local scripting bridge. The heart of the module is the
// workflow-graph parameter injection in graphapi and the keyed task lifecycle
// management in taskmanager; the surrounding GUI is expected to consume these
// as a library.
package comfystage
