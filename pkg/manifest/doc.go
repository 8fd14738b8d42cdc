/*
Package manifest loads the YAML documents printq applies and turns them into
an ordered reconciliation pass.

A manifest is a stream of documents in the apiVersion/kind/metadata/spec
shape:

	apiVersion: printq/v1
	kind: Printer
	metadata:
	  name: Office
	spec:
	  uri: ipp://office.example.com/ipp/print
	  model: drv:///sample.drv/generic.ppd
	  make_and_model: Generic PostScript Printer
	  access: {policy: deny, users: [mallory]}
	---
	apiVersion: printq/v1
	kind: Class
	metadata:
	  name: GroundFloor
	spec:
	  members: [Office]
	---
	apiVersion: printq/v1
	kind: Queue
	metadata:
	  name: Retired
	spec:
	  ensure: absent

Order places class members and explicit spec.require entries before the
resources that name them, keeping file order otherwise.
*/
package manifest
